package ioutil

import (
	"fmt"
	"io"
)

// drainLimit bounds how much of an unread body is discarded to let the
// connection return to the pool. Larger remainders just close the connection.
const drainLimit = 64 << 10

// ReadLimited reads up to limit bytes from r for use in error details and
// logs. A read failure is described in the returned string rather than
// dropped.
func ReadLimited(r io.Reader, limit int64) string {
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return fmt.Sprintf("<unreadable: %v>", err)
	}
	return string(body)
}

// DrainAndClose discards what is left of rc, up to a bound, and closes it
func DrainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, drainLimit))
	_ = rc.Close()
}
