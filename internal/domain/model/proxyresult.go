package model

// ProxyResult is the normalized response the proxy hands back to the browser.
// Body is always a JSON document. Class is empty for relayed successes and
// names the failure class otherwise.
type ProxyResult struct {
	Status int
	Body   []byte
	Class  ErrorClass
}

// OK reports whether the result carries a 2xx status.
func (r ProxyResult) OK() bool {
	return r.Status >= 200 && r.Status < 300
}
