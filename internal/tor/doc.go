// Package tor routes couponscout's HTTP traffic through a SOCKS5 proxy,
// normally the Tor network.
//
// Two setups are supported. With an external proxy, such as a local tor
// daemon listening on 127.0.0.1:9050, create a Client from its address.
// Without one, EmbeddedTor launches a private tor daemon through tornago and
// exposes its SOCKS address:
//
//	embedded := tor.NewEmbeddedTor(tor.WithStartupTimeout(3 * time.Minute))
//	if err := embedded.Start(ctx); err != nil { ... }
//	defer embedded.Stop()
//	client, err := embedded.NewClient(10 * time.Second)
//	httpClient := client.NewHTTPClient()
//
// The returned http.Client can be shared by the feed reader and the
// translation page session.
package tor
