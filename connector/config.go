package connector

import "time"

// PoolConfig is the pool-sizing slice of the connection parameters:
// nmin/nmax bound the connection count, nkeep is how many survive an idle
// trim, exptime (seconds) is the idle lifetime, persistent keeps the pool
// open across adapter Close calls.
type PoolConfig struct {
	MinConns    int
	MaxConns    int
	KeepConns   int
	IdleSeconds int
	Persistent  bool
}

// IdleTime returns the idle lifetime as a duration.
func (c PoolConfig) IdleTime() time.Duration {
	return time.Duration(c.IdleSeconds) * time.Second
}

// RetryConfig shapes the exponential backoff ConnectWithRetry applies while
// a database is still coming up.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Backoff    float64 // delay multiplier between attempts
}
