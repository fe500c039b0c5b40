package http

import "time"

// TimingInfo holds the duration of each phase of one exchange.
type TimingInfo struct {
	StartTime           time.Time
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
}

// GetDNSLookupTimeMillis returns the DNS lookup time in milliseconds
func (t TimingInfo) GetDNSLookupTimeMillis() int64 { return t.DNSLookupTime.Milliseconds() }

// GetTCPConnectTimeMillis returns the TCP connect time in milliseconds
func (t TimingInfo) GetTCPConnectTimeMillis() int64 { return t.TCPConnectTime.Milliseconds() }

// GetTLSHandshakeTimeMillis returns the TLS handshake time in milliseconds
func (t TimingInfo) GetTLSHandshakeTimeMillis() int64 { return t.TLSHandshakeTime.Milliseconds() }

// GetTimeToFirstByteMillis returns the time to first byte in milliseconds
func (t TimingInfo) GetTimeToFirstByteMillis() int64 { return t.TimeToFirstByte.Milliseconds() }

// GetContentTransferTimeMillis returns the content transfer time in milliseconds
func (t TimingInfo) GetContentTransferTimeMillis() int64 {
	return t.ContentTransferTime.Milliseconds()
}

// GetTotalTimeMillis returns the total time in milliseconds
func (t TimingInfo) GetTotalTimeMillis() int64 { return t.TotalTime.Milliseconds() }
