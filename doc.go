// Package mailtm provides a resilient Go client for mail.tm-style
// temporary email providers.
//
// The client fuses a TTL response cache with a rate-limited, retrying
// HTTP pipeline and bearer-token session management, so callers get a
// low-latency, rate-respecting view of an unreliable upstream API.
//
// Basic usage:
//
//	client, err := mailtm.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Pick a domain and register a throwaway account
//	domains, err := client.Domains(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	address := "someone@" + domains[0].Domain
//
//	account, err := client.Register(ctx, address, "s3cret-pass")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Logout()
//
//	// Read the mailbox
//	messages, err := client.Messages(ctx, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range messages {
//	    fmt.Println(m.Subject)
//	}
//
// Failures surface as *Error values classified by ErrorKind and
// matchable against the package sentinels with errors.Is.
package mailtm
