// Package mqtt connects holobridge to an MQTT broker.
//
// All topics live under mqtt.topic_prefix (default "holobridge"); see
// Topics for the layout. The Client keeps three records on the broker:
//
//   - {prefix}/service: retained online/offline status of this process,
//     with the offline variant registered as the last will
//   - {prefix}/status: retained Bridge reachability, see PublishBridgeState
//   - {prefix}/ack/{action}: one answer per message on {prefix}/command/+,
//     see HandleCommands
//
// The relay package supplies the Bridge side: it mirrors push events and
// display snapshots with PublishJSON and runs commands against the engine.
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) when the broker is not on localhost
//   - Command topics drive playback, so restrict them with broker ACLs
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.HandleCommands(func(action string, _ []byte) error {
//	    return engine.TransportAction(ctx, action)
//	})
package mqtt
