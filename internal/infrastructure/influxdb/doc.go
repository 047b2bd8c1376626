// Package influxdb records bridge engine telemetry in InfluxDB.
//
// Client implements bridge.Observer and writes through the batching
// influxdb-client-go v2 write API:
//
//   - bridge_request: one point per request, tagged by endpoint and outcome
//   - bridge_connection: one point per reachability transition
//   - bridge_event: one point per pushed event
//   - bridge_displays: registry size, written by the serve loop
//
// Every point carries service=holobridge.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { logger.Warn("influx", "error", err) })
package influxdb
