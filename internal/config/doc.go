// Package config provides configuration parsing for slicestore.
//
// The configuration is stored in slicestore.json in the working directory
// or one of its parents. Every field is optional; missing values fall back
// to Default.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "address": "localhost:7070",
//	    "allowedOrigins": ["http://localhost:3000"],
//	    "maxMessageSize": 65536
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "slicestore",
//	    "path": "/metrics"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "slicestore"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "todo": {
//	    "idPrefix": "item"
//	  }
//	}
//
// The SLICESTORE_ADDRESS environment variable overrides server.address.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Server.Address)
package config
