// Package automod detects spam, blocked links and filtered words in guild messages
// and gates new accounts on join.
package automod

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/PancyStudios/PancyGuard/pkg/models"
	"github.com/dgraph-io/ristretto"
)

// maxWordPatterns bounds how many compiled word patterns are kept across guilds
const maxWordPatterns = 4096

// Rule names a detector
type Rule string

const (
	RuleSpam      Rule = "spam"
	RuleDuplicate Rule = "duplicate"
	RuleInvite    Rule = "invite"
	RuleLink      Rule = "link"
	RuleWord      Rule = "word"
)

// Violation is the first rule a message broke
type Violation struct {
	Rule            Rule
	Action          models.EnforcementAction
	Reason          string
	Word            string
	TimeoutDuration time.Duration
}

var (
	invitePattern = regexp.MustCompile(`(?i)(discord\.gg|discord\.com/invite|discordapp\.com/invite)/\w+`)
	urlPattern    = regexp.MustCompile(`(?i)https?://[^\s]+`)
	wordPatterns  = newPatternCache(maxWordPatterns)
)

// IsExempt reports whether a member skips automod: administrators always do
func IsExempt(p models.AutomodPolicy, roleIDs []string, administrator bool) bool {
	if administrator {
		return true
	}
	for _, id := range roleIDs {
		if slices.Contains(p.ExemptRoleIDs, id) {
			return true
		}
	}
	return false
}

// Evaluate checks a message against the policy in order spam, duplicate, links, words.
// obs is the tracker snapshot for the message and is ignored when anti-spam is off.
func Evaluate(p models.AutomodPolicy, content string, obs Observation) (Violation, bool) {
	if v, ok := checkSpam(p.AntiSpam, obs); ok {
		return v, true
	}
	if v, ok := checkLinks(p.LinkFilter, content); ok {
		return v, true
	}
	if v, ok := checkWords(p.WordFilter, content); ok {
		return v, true
	}
	return Violation{}, false
}

func checkSpam(p models.AntiSpamPolicy, obs Observation) (Violation, bool) {
	if !p.Enabled {
		return Violation{}, false
	}
	v := Violation{Action: p.Action, TimeoutDuration: p.TimeoutDuration()}

	if obs.Recent > p.MaxMessages {
		v.Rule = RuleSpam
		v.Reason = fmt.Sprintf("Enviando mensajes demasiado rápido (%d mensajes en %ds)", obs.Recent, p.TimeWindowMs/1000)
		return v, true
	}
	if obs.Duplicates >= p.DuplicateThreshold {
		v.Rule = RuleDuplicate
		v.Reason = fmt.Sprintf("Enviando mensajes duplicados (%d mensajes idénticos)", obs.Duplicates)
		return v, true
	}
	return Violation{}, false
}

func checkLinks(p models.LinkFilterPolicy, content string) (Violation, bool) {
	if !p.Enabled {
		return Violation{}, false
	}
	lower := strings.ToLower(content)

	if p.BlockInvites && invitePattern.MatchString(lower) {
		return Violation{Rule: RuleInvite, Action: p.Action, Reason: "Los enlaces de invitación de Discord no están permitidos"}, true
	}

	if p.BlockAllLinks {
		for _, raw := range urlPattern.FindAllString(lower, -1) {
			if !LinkAllowed(raw, p.AllowedDomains) {
				return Violation{Rule: RuleLink, Action: p.Action, Reason: "Los enlaces no están permitidos en este servidor"}, true
			}
		}
	}
	return Violation{}, false
}

// LinkAllowed reports whether the host of rawURL is an allowed domain or a subdomain of one.
// URLs that do not parse or have no host are never allowed.
func LinkAllowed(rawURL string, allowed []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range allowed {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func newPatternCache(maxItems int64) *ristretto.Cache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxItems * 10,
		MaxCost:            maxItems,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		panic(fmt.Sprintf("automod: word pattern cache: %v", err))
	}
	return cache
}

// wordPattern compiles a whole-word matcher; evicted words are simply compiled again
func wordPattern(word string) *regexp.Regexp {
	if cached, ok := wordPatterns.Get(word); ok {
		return cached.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	wordPatterns.Set(word, re, 1)
	return re
}

func checkWords(p models.WordFilterPolicy, content string) (Violation, bool) {
	if !p.Enabled || len(p.Words) == 0 {
		return Violation{}, false
	}
	lower := strings.ToLower(content)

	for _, word := range p.Words {
		if word == "" {
			continue
		}
		if wordPattern(word).MatchString(lower) {
			return Violation{Rule: RuleWord, Action: p.Action, Reason: "El mensaje contiene una palabra filtrada", Word: word}, true
		}
	}
	return Violation{}, false
}
