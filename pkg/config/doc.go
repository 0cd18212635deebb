// Package config provides configuration management for rowmap.
//
// # Usage
//
// ## Loading a file
//
//	cfg, err := config.Load("rowmap.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// ## Environment variable substitution
//
//	# rowmap.yaml
//	database:
//	  driver: pgx
//	  dsn: ${DATABASE_URL}
//	reader:
//	  initial_capacity: 128
//	  split_on: [customer_id, address_id]
//
// Values missing from the file keep the defaults from Default, and the result
// is validated before it is returned.
package config
