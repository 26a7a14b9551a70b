package registrar

// rdapServers is a static snapshot of TLD -> RDAP base URL (spec.md §9 open
// question (b): a live IANA bootstrap is optional and not implemented here).
// A TLD absent from this map, or explicitly mapped to "", falls back to
// WHOIS.
var rdapServers = map[string]string{
	"com":    "https://rdap.verisign.com/com/v1",
	"net":    "https://rdap.verisign.com/net/v1",
	"org":    "https://rdap.publicinterestregistry.org/rdap",
	"info":   "https://rdap.afilias.net/rdap/info",
	"biz":    "https://rdap.nic.biz",
	"io":     "https://rdap.nic.io",
	"co":     "https://rdap.nic.co",
	"dev":    "https://pubapi.registry.google/rdap",
	"app":    "https://pubapi.registry.google/rdap",
	"page":   "https://pubapi.registry.google/rdap",
	"xyz":    "https://rdap.centralnic.com/xyz",
	"online": "https://rdap.centralnic.com/online",
	"site":   "https://rdap.centralnic.com/site",
	"shop":   "https://rdap.centralnic.com/shop",
	"store":  "https://rdap.centralnic.com/store",
	"tech":   "https://rdap.centralnic.com/tech",
	"club":   "https://rdap.nic.club",
	"me":     "https://rdap.nic.me",
	"tv":     "https://rdap.nic.tv",
	"cc":     "https://ccwhois.verisign-grs.com/rdap",
	"us":     "https://rdap.nic.us",
	"uk":     "https://rdap.nominet.uk/uk",
	"co.uk":  "https://rdap.nominet.uk/uk",
	"de":     "https://rdap.denic.de",
	"nl":     "https://rdap.sidn.nl",
	"fr":     "https://rdap.nic.fr",
	"es":     "https://rdap.nic.es",
	"it":     "https://rdap.nic.it",
	"eu":     "https://rdap.eu.org",
	"ch":     "https://rdap.nic.ch",
	"se":     "https://rdap.iis.se",
	"no":     "https://rdap.norid.no",
	"dk":     "https://rdap.dk-hostmaster.dk",
	"fi":     "https://rdap.fi",
	"pl":     "https://rdap.dns.pl",
	"ru":     "",
	"jp":     "https://jprs.jp/rdap",
	"cn":     "https://rdap.cnnic.cn",
	"in":     "https://rdap.registry.in",
	"au":     "https://rdap.auda.org.au",
	"nz":     "https://rdap.dnc.org.nz",
	"ca":     "https://rdap.cira.ca",
	"br":     "https://rdap.registro.br",
	"mx":     "",
	"ai":     "https://rdap.nic.ai",
	"gg":     "",
	"id":     "",
}

// rdapBaseForTLD returns the RDAP base URL for a registrable domain's TLD, or
// "" with ok=false if the TLD is unmapped or explicitly disabled.
func rdapBaseForTLD(domain string) (base string, ok bool) {
	tld := lastLabel(domain)
	base, present := rdapServers[tld]
	if !present || base == "" {
		return "", false
	}
	return base, true
}

func lastLabel(domain string) string {
	for i := len(domain) - 1; i >= 0; i-- {
		if domain[i] == '.' {
			return domain[i+1:]
		}
	}
	return domain
}
