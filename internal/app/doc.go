// Package app wires configuration, logging, telemetry, storage, sessions
// and HTTP handlers into a runnable server and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML and INSIGHT_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Open the snapshot store selected by store.driver
//	4. Start the websocket hub and the upload session manager
//	5. Build the report and health services
//	6. Mount middleware and routes on a chi router
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down within
// server.shutdown_timeout.
package app
