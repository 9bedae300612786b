// Package semindex builds and serves semantic indexes over personal content.
//
// Each content type (notes, ledger, music, image) is converted into entries,
// embedded through an OpenAI-compatible embeddings endpoint and cached on
// disk together with a manifest that records what produced the cache. The
// cache is reused until its sources, the embedding model or the files
// themselves change. Queries are ranked by cosine similarity.
//
//	cfg, err := config.Load()
//	...
//	engine, err := semindex.NewEngine(cfg)
//	...
//	defer engine.Close()
//	results, err := engine.Search(ctx, "notes", "how to call semantic search from emacs", 5)
package semindex
