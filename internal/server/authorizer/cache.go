package authorizer

// decisionCache memoizes decisions by raw token value within a single
// authorizer invocation. Allow and Deny are cached alike. A fresh cache is
// built for every invocation and discarded with it, so a decision whose
// expiry or revocation status may have changed never leaks into the next
// request, even on a warm process.
type decisionCache map[string]Decision

func (c decisionCache) get(rawToken string) (Decision, bool) {
	d, ok := c[rawToken]
	return d, ok
}

func (c decisionCache) put(rawToken string, d Decision) {
	c[rawToken] = d
}
