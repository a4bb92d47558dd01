// Package uniweb provides types, interfaces, and helpers for working with the
// Uniweb content-management API.
//
// # Overview
//
// The uniweb package defines the request descriptions (ReadRequest,
// WriteRequest, InfoRequest), the resource tree variants (Paths, Records,
// ItemLists), the option model used by drop-down fields and the Client
// interface. A concrete implementation is provided by the uniwebclient
// package, which wires credentials, transport and authentication.
//
// Getting a client
//
//	creds, err := uniweb.LoadCredentials("")
//	if err != nil { log.Fatal(err) }
//
//	cli, err := uniwebclient.New(&uniweb.Config{Credentials: *creds})
//	if err != nil { log.Fatal(err) }
//
//	resp, err := cli.Read(ctx, &uniweb.ReadRequest{
//	  Resources: uniweb.Paths{"profile/membership_information"},
//	  Filter:    uniweb.Filter{"unit": "Engineering", "title": "Professor"},
//	  Language:  "en",
//	})
//
// # Writes
//
// Writes address one subject by ID. Edits only touch the fields they list,
// and a Bilingual value only touches the languages it sets:
//
//	req, err := uniweb.NewEditRequest("example@proximify.ca", uniweb.Records{
//	  "profile/research_description": {
//	    "research_description": uniweb.English("Robotics"),
//	  },
//	})
//
// # Drop-down options
//
// GetOptions returns the valid values of the fields of a resource.
// FindOptionID resolves a human readable label, or a label path
// (name, parent, grand parent...), to the identifier the server expects.
//
// # Errors
//
// Every error wraps one of ErrConfig, ErrInvalidRequest, ErrAuth,
// ErrRemote, ErrProtocol or ErrRetryExhausted. Expired or revoked tokens
// are renewed transparently.
package uniweb
