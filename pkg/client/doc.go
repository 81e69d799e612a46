// Package client provides a Go client for the ccdb complaint search API.
//
//	c, _ := client.New("https://ccdb.example.org", client.WithLogger(slog.Default()))
//	res, _ := c.Search(ctx, client.Query{
//	    SearchTerm: "foreclosure",
//	    Filters:    map[string][]string{"state": {"CA", "NY"}},
//	    Size:       25,
//	})
//
// Exports are streamed straight into a writer:
//
//	f, _ := os.Create("complaints.csv")
//	_, err := c.Export(ctx, client.Query{Size: 100000}, client.FormatCSV, f)
package client
