package signals

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"time"
)

// dnsProbe implements probe C: resolve A/AAAA/NS/MX independently,
// tolerating per-record-type failure.
func dnsProbe(ctx context.Context, domain string) DNS {
	resolver := net.DefaultResolver
	d := DNS{}

	if ips, err := resolver.LookupIP(ctx, "ip4", domain); err == nil {
		for _, ip := range ips {
			d.A = append(d.A, ip.String())
		}
	}
	if ips, err := resolver.LookupIP(ctx, "ip6", domain); err == nil {
		for _, ip := range ips {
			d.AAAA = append(d.AAAA, ip.String())
		}
	}
	if ns, err := resolver.LookupNS(ctx, domain); err == nil {
		for _, n := range ns {
			d.NS = append(d.NS, n.Host)
		}
	}
	if mx, err := resolver.LookupMX(ctx, domain); err == nil {
		for _, m := range mx {
			d.MX = append(d.MX, m.Host)
		}
	}

	d.DNSOk = len(d.A)+len(d.AAAA) > 0
	d.MXPresent = len(d.MX) > 0
	return d
}

// tlsProbe implements probe D: open a TCP+TLS connection with SNI, accepting
// untrusted certificates for inspection only (no chain validation, per
// spec.md's explicit non-goal).
func tlsProbe(ctx context.Context, domain string, now time.Time) TLS {
	t := TLS{}

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := tls.DialWithDialer(dialer, "tcp", fmt.Sprintf("%s:443", domain), &tls.Config{
		ServerName:         domain,
		InsecureSkipVerify: true,
	})
	if err != nil {
		t.HTTPSOk = false
		return t
	}
	defer conn.Close()
	t.HTTPSOk = true

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return t
	}
	cert := state.PeerCertificates[0]

	switch {
	case cert.Issuer.Organization != nil && len(cert.Issuer.Organization) > 0:
		t.Issuer = cert.Issuer.Organization[0]
	case cert.Issuer.CommonName != "":
		t.Issuer = cert.Issuer.CommonName
	default:
		t.Issuer = cert.Issuer.String()
	}

	from, to := cert.NotBefore, cert.NotAfter
	t.ValidFrom = &from
	t.ValidTo = &to

	days := int(to.Sub(now).Hours() / 24)
	t.DaysToExpiry = &days
	t.ExpiringSoon = days < 14

	return t
}
