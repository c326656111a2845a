// Package discovery finds the network services the radio client depends on
// using multicast DNS.
//
// MQTT brokers advertise "_mqtt._tcp" and Home Assistant instances advertise
// "_home-assistant._tcp". A scan browses both for a fixed period and returns
// every resolved instance, which is enough to fill the mqtt and
// home_assistant sections of a fresh configuration.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	services, err := scanner.ScanAll(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, svc := range services {
//	    fmt.Println(svc)
//	}
package discovery
