// Package uniwebclient provides the primary entry point for constructing a
// Uniweb API client that implements the uniweb.Client interface.
//
// It layers credential validation, homepage normalization, HTTP transport
// and token management on top of the request types defined in the uniweb
// package. Most applications should import uniwebclient to build a client,
// then use the returned uniweb.Client to read and write profiles.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/uniweb/pkg/uniweb"
//	  "github.com/fivetwenty-io/uniweb/pkg/uniwebclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // From settings/credentials.json under the working directory.
//	  cli, err := uniwebclient.NewFromFile("")
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with explicit values. Bare hosts are served over https.
//	  cli, err = uniwebclient.NewWithCredentials("uniweb.example.org", "bot", "secret")
//
//	  // Or with the full configuration, checking the credentials right away.
//	  cli, err = uniwebclient.Connect(ctx, &uniweb.Config{
//	    Credentials: uniweb.Credentials{Homepage: "uniweb.example.org", ClientName: "bot", ClientSecret: "secret"},
//	    RetryBudget: 3,
//	  })
//
//	  resp, err := cli.GetTitles(ctx)
//	  if err != nil { log.Fatal(err) }
//	  log.Println(resp.String())
//	}
//
// Tokens are acquired on first use and renewed whenever they expire or the
// server rejects them, within the retry budget of the configuration.
package uniwebclient
