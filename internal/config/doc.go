// Package config loads idom.yaml, the configuration of the idom command.
//
//	server:
//	  address: ":8000"
//	  title: "My App"
//	  write_timeout: 10s
//	layout:
//	  max_depth: 256
//	sessions:
//	  store: sqlite
//	  path: data/sessions.db
//	  ttl: 168h
//	uploads:
//	  sink: s3
//	  s3:
//	    bucket: my-bucket
//	    region: eu-west-1
//	log:
//	  level: debug
//	  format: json
//
// Every field is optional. Missing fields take the defaults of Default.
package config
