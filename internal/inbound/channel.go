package inbound

import (
	"strings"
)

// Channel is the originating surface of a message.
type Channel string

// Channels recognised by the classifier.
const (
	ChannelForm        Channel = "form"
	ChannelMarketplace Channel = "marketplace"
	ChannelEmail       Channel = "email"
)

// DefaultMarketplaceDomains are lead marketplaces whose notifications arrive
// from no-reply addresses and often omit firm dates.
var DefaultMarketplaceDomains = []string{
	"encoremusicians.com",
	"bark.com",
	"addtoevent.co.uk",
	"gigsalad.com",
	"thebash.com",
	"poptop.uk.com",
}

var automatedLocalParts = []string{
	"noreply", "no-reply", "no_reply", "donotreply", "do-not-reply", "do_not_reply",
	"mailer-daemon", "postmaster", "notifications", "notification", "bounce", "bounces",
	"wordpress", "forms", "formsubmit",
}

// minFormLabels is how many recognised "Label: value" lines mark a body as a
// form submission relayed by email. Two is too few: signatures routinely
// carry "Phone:" and "Email:" lines.
const minFormLabels = 3

// Classifier decides a message's channel and recognises automated senders.
type Classifier struct {
	marketplaces map[string]bool
}

// NewClassifier creates a Classifier. An empty domain list uses
// DefaultMarketplaceDomains.
func NewClassifier(marketplaceDomains []string) *Classifier {
	if len(marketplaceDomains) == 0 {
		marketplaceDomains = DefaultMarketplaceDomains
	}
	c := &Classifier{marketplaces: make(map[string]bool, len(marketplaceDomains))}
	for _, d := range marketplaceDomains {
		c.marketplaces[strings.ToLower(strings.TrimSpace(d))] = true
	}
	return c
}

// Classify returns the message's channel. Marketplace senders win over form
// shape because marketplace notifications are themselves templated forms.
func (c *Classifier) Classify(m Message) Channel {
	if m.Source == SourceMarketplace || c.IsMarketplace(m.Sender) {
		return ChannelMarketplace
	}
	if m.Source == SourceWidget || m.HasFields() {
		return ChannelForm
	}
	if countKnownLabels(ParseFormFields(m.Body)) >= minFormLabels {
		return ChannelForm
	}
	return ChannelEmail
}

// IsMarketplace reports whether address belongs to a marketplace domain or
// one of its subdomains.
func (c *Classifier) IsMarketplace(address string) bool {
	domain := domainOf(address)
	for domain != "" {
		if c.marketplaces[domain] {
			return true
		}
		dot := strings.IndexByte(domain, '.')
		if dot < 0 {
			break
		}
		domain = domain[dot+1:]
	}
	return false
}

// IsAutomated reports whether address is a no-reply, bounce or marketplace
// sender that must never be stored as a client contact.
func (c *Classifier) IsAutomated(address string) bool {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.LastIndexByte(address, '@')
	if at <= 0 {
		return false
	}
	local := address[:at]
	for _, p := range automatedLocalParts {
		if local == p || strings.HasPrefix(local, p+"+") || strings.HasPrefix(local, p+".") {
			return true
		}
	}
	return c.IsMarketplace(address)
}

func domainOf(address string) string {
	address = strings.ToLower(strings.TrimSpace(address))
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return address[at+1:]
}
