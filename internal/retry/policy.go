package retry

import (
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Policy decides which failed round trips are worth another attempt.
type Policy struct {
	serverError    bool
	gatewayError   bool
	connectFailure bool
	conflict       bool
	statusCodes    []int
}

// DefaultPolicy retries what a Pushgateway behind a load balancer tends to
// return while it restarts.
func DefaultPolicy() *Policy {
	return &Policy{
		gatewayError:   true,
		connectFailure: true,
	}
}

// ParsePolicy reads a comma separated list of 5xx, gateway-error,
// connect-failure, conflict and bare status codes.
func ParsePolicy(s string) (*Policy, error) {
	p := &Policy{}
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		switch token {
		case "":
		case "5xx":
			p.serverError = true
		case "gateway-error":
			p.gatewayError = true
		case "connect-failure":
			p.connectFailure = true
		case "conflict":
			p.conflict = true
		default:
			statusCode, err := strconv.Atoi(token)
			if err != nil || statusCode < 100 || statusCode > 599 {
				return nil, xerrors.Errorf("invalid retry condition: %s", token)
			}
			p.statusCodes = append(p.statusCodes, statusCode)
		}
	}
	return p, nil
}

func (p *Policy) RetryableResponse(response *http.Response) bool {
	code := response.StatusCode
	switch {
	case p.serverError && code >= 500 && code < 600:
		return true
	case p.gatewayError && code >= http.StatusBadGateway && code <= http.StatusGatewayTimeout:
		return true
	case p.conflict && code == http.StatusConflict:
		return true
	}
	return slices.Contains(p.statusCodes, code)
}

func (p *Policy) RetryableError(err error) bool {
	if !p.connectFailure && !p.serverError {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	type temporary interface{ Temporary() bool }
	var terr temporary
	return (errors.As(err, &terr) && terr.Temporary()) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
