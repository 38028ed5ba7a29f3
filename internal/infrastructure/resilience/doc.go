/*
Package resilience provides a circuit breaker for calls to a remote file
server.

A breaker is Closed while calls succeed. After ReadyToTrip approves a
failure it Opens and rejects calls with ErrCircuitOpen until Timeout
elapses. It then goes Half-Open and lets MaxRequests probes through: that
many successes close it, a single failure opens it again.

	Closed --[ReadyToTrip]-> Open --[Timeout]-> Half-Open --[successes]-> Closed
	                          ^                      |
	                          +------[failure]-------+

IsSuccessful decides what counts as a failure, so callers can ignore
client errors such as 404 and trip only on transport faults and 5xx.

	breaker := resilience.New("fileserver", resilience.Settings{
		MaxRequests: 2,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 3 },
	})
	resp, err := resilience.Do(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})
*/
package resilience
