// Package router resolves HTTP requests to handlers.
//
// A Router is compiled once from an ordered table of routes and is
// immutable afterwards, so Match is safe for concurrent use without
// locking. Routes are tried in declaration order: the request method must
// equal the route method before the path pattern is evaluated, and the first
// route whose pattern matches wins. Requests that match no route resolve to
// the fallback handler.
//
// # Patterns
//
// A pattern starting with "^" is an anchored regular expression whose named
// groups become path parameters. Any other pattern is a template in which
// "{name}" captures one path segment and "{name:regex}" captures the text
// matched by regex:
//
//	/p/{token:[a-zA-Z0-9_-]+}
//	^/stat/(?P<token>[a-zA-Z0-9_-]+)$
//
// Every route declares the captures its pattern produces. New rejects a
// table in which a declared capture is missing from the pattern or the
// pattern produces an undeclared one.
//
// # Usage
//
//	r, err := router.New(routes, notFound)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m := r.Match(req.Method, req.URL.Path)
//	token, err := m.Params.Get("token")
package router
