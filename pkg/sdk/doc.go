// Package recollect provides a Go client for the recollect search API.
//
// The service takes a half-remembered description of a video, extracts
// facet keywords with an LLM and searches a catalog provider for matches.
//
//	client, _ := recollect.New("http://localhost:8080",
//	    recollect.WithAPIKey(os.Getenv("RECOLLECT_API_KEY")),
//	)
//	resp, _ := client.Search(ctx, recollect.SearchRequest{
//	    Query:    "ショートヘアの新人OLが出張先で",
//	    Provider: recollect.ProviderDMM,
//	})
//	for _, r := range resp.Results {
//	    fmt.Println(r.Score, r.Title, r.DetailURL)
//	}
//
// Fictitious mode asks the service to invent plausible entries instead of
// querying a catalog:
//
//	resp, _ := client.Search(ctx, recollect.SearchRequest{
//	    Query: "still water",
//	    Mode:  recollect.ModeFictitious,
//	})
package recollect
