package compact

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// rule is one regex substitution. Word rules only accept matches whose
// edges sit on a word boundary, Unicode-aware, since RE2's \b is ASCII only.
type rule struct {
	re   *regexp.Regexp
	repl string
	word bool
}

func plain(pattern, repl string) rule {
	return rule{re: regexp.MustCompile(pattern), repl: repl}
}

func word(pattern, repl string) rule {
	return rule{re: regexp.MustCompile(pattern), repl: repl, word: true}
}

func (r rule) apply(s string) string {
	if !r.word {
		return r.re.ReplaceAllString(s, r.repl)
	}

	var b strings.Builder
	last, pos := 0, 0
	for pos < len(s) {
		m := r.re.FindStringSubmatchIndex(s[pos:])
		if m == nil {
			break
		}
		start, end := pos+m[0], pos+m[1]
		if end == start || !onBoundaries(s, start, end) {
			_, size := utf8.DecodeRuneInString(s[start:])
			pos = start + max(size, 1)
			continue
		}
		b.WriteString(s[last:start])
		b.Write(r.re.ExpandString(nil, r.repl, s[pos:], m))
		last, pos = end, end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// onBoundaries reports whether s[start:end] is not glued to a word rune on
// either side where the match itself starts or ends with a word rune.
func onBoundaries(s string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(s[start:end])
	if isWordRune(first) && start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:start])
		if isWordRune(prev) {
			return false
		}
	}
	lastRune, _ := utf8.DecodeLastRuneInString(s[start:end])
	if isWordRune(lastRune) && end < len(s) {
		next, _ := utf8.DecodeRuneInString(s[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func applyAll(s string, rules []rule) string {
	for _, r := range rules {
		s = r.apply(s)
	}
	return s
}

var spellFixes = []rule{
	// French elision spacing: "l ' arbre" -> "l'arbre".
	plain(`(?i)(^|[^\p{L}])([cdjlmnst]|qu) ?['’] +(\p{L})`, "$1$2'$3"),
	plain(`(?i)(^|[^\p{L}])([cdjlmnst]|qu) +['’] ?(\p{L})`, "$1$2'$3"),
	// English contractions: "don 't" -> "don't".
	plain(`(?i)(\p{L}) +['’](s|t|re|ve|ll|d|m)([^\p{L}]|$)`, "$1'$2$3"),
	word(`(?i)du coups`, "du coup"),
	word(`(?i)malgrés`, "malgré"),
	word(`(?i)parmis`, "parmi"),
	word(`(?i)resumé`, "résumé"),
	word(`(?i)teh`, "the"),
	word(`(?i)recieve`, "receive"),
	word(`(?i)seperate`, "separate"),
	word(`(?i)definately`, "definitely"),
}

var greetings = plain(
	`(?im)^[ \t]*(?:bonjour|bonsoir|salut|coucou|hello|hi|hey)(?:[ \t]*[,!.:;]+[ \t]*|[ \t]+|$)`, "")

var signOffs = word(
	`(?im)[ \t]*[,.;]?[ \t]*(?:merci(?:[ \t]+(?:beaucoup|d'avance|bien))?|cordialement|bien à (?:vous|toi)|bonne journée|thanks(?: a lot)?|thank you|best regards|regards|cheers)[ \t]*[!.]*[ \t]*$`, "")

var politeness = word(
	`(?i)(?:s['’]il (?:te|vous) pla[iî]t|svp|stp|merci d'avance|je (?:te|vous) prie de|please|kindly)[ \t]*,?`, "")

var fillers = []rule{
	word(`(?i)(?:en fait|du coup|au final|basiquement|clairement|franchement|littéralement|carrément)[ \t]*,?`, ""),
	word(`(?i)(?:vraiment|très|extrêmement|fortement|simplement|juste)`, ""),
	word(`(?i)(?:actually|really|very|simply|just|basically|literally|totally)`, ""),
}

var safeRewrites = []rule{
	word(`(?i)est-ce que tu peux`, "peux-tu"),
	word(`(?i)est-ce que vous pouvez`, "pouvez-vous"),
	word(`(?i)is it possible (?:that you can|for you to)`, "can you"),
	word(`(?i)could you possibly`, "could you"),
	word(`(?i)in order to`, "to"),
	word(`(?i)afin de`, "pour"),
	word(`(?i)due to the fact that`, "because"),
	word(`(?i)étant donné que`, "car"),
	word(`(?i)at this point in time`, "now"),
	word(`(?i)a large number of`, "many"),
	word(`(?i)un grand nombre de`, "beaucoup de"),
	plain(`\([ \t]+`, "("),
	plain(`[ \t]+\)`, ")"),
}

var domainCompactions = buildDomainCompactions()

func buildDomainCompactions() []rule {
	const askFR = `(?:(?:peux-tu|pouvez-vous)\s+)?(?:(?:me|nous)\s+)?faire\s+un\s+résumé\s+`
	rules := []rule{
		word(`(?i)`+askFR+`des`, "résume les"),
		word(`(?i)`+askFR+`du`, "résume le"),
		word(`(?i)`+askFR+`de`, "résume"),
		word(`(?i)(?:(?:can|could) you\s+)?(?:make|give|write)\s+(?:me\s+)?a\s+summary\s+of`, "summarize"),
		word(`(?i)donne-moi une liste de`, "liste"),
		word(`(?i)give me a list of`, "list"),
		word(`(?i)explique-moi`, "explique"),
		word(`(?i)explain to me`, "explain"),
	}
	for i, n := range []string{"deux", "trois", "quatre", "cinq"} {
		rules = append(rules, word(`(?i)en\s+`+n+`\s+parties\s+distinctes`, "en "+string(rune('2'+i))+" parties"))
	}
	for i, n := range []string{"two", "three", "four", "five"} {
		rules = append(rules, word(`(?i)in\s+`+n+`\s+distinct\s+parts`, "in "+string(rune('2'+i))+" parts"))
	}
	return rules
}

var budgetSynonyms = []rule{
	word(`(?i)par exemple`, "ex."),
	word(`(?i)c'est-à-dire`, "i.e."),
	word(`(?i)for example`, "e.g."),
	word(`(?i)(?:environ|approximately)`, "~"),
	word(`(?i)et cetera`, "etc."),
	word(`(?i)informations`, "infos"),
	word(`(?i)information`, "info"),
	word(`(?i)maximum`, "max"),
	word(`(?i)minimum`, "min"),
}

var hedges = word(`(?i)(?:plutôt|assez|relativement|un peu|somewhat|rather|fairly|quite|pretty much)`, "")

var tightenRules = []rule{
	plain(`[ \t]+`, " "),
	plain(`(?m)^ +| +$`, ""),
	plain(`\n{3,}`, "\n\n"),
	plain(` +([,:;.])`, "$1"),
	plain(`([,;])(\p{L})`, "$1 $2"),
	plain(`-{4,}`, "---"),
	plain(`={4,}`, "==="),
	plain(`(?m)^([-*•])(?:[ \t]*[-*•])+[ \t]+`, "$1 "),
}

var trailingPunct = plain(`(?m)[ \t]*[,;]+[ \t]*$`, "")

func stripSoft(s string) string {
	return politeness.apply(stripGreetings(s))
}

func stripGreetings(s string) string {
	return signOffs.apply(greetings.apply(s))
}

func stripFillers(s string) string {
	return applyAll(s, fillers)
}

// dedupeLines keeps the first occurrence of each line, compared trimmed and
// case-insensitively, and collapses blank runs to one blank between blocks.
func dedupeLines(s string) string {
	seen := make(map[string]bool)
	var kept []string
	for _, line := range strings.Split(s, "\n") {
		key := strings.ToLower(strings.TrimSpace(line))
		switch {
		case key != "":
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, line)
		case len(kept) > 0 && kept[len(kept)-1] != "":
			kept = append(kept, "")
		}
	}
	return strings.Join(kept, "\n")
}

func tighten(s string) string {
	return strings.TrimSpace(applyAll(s, tightenRules))
}

func budgetPass(s string) string {
	s = stripGreetings(s)
	s = applyAll(s, budgetSynonyms)
	return tighten(hedges.apply(s))
}

func finalCleanup(s string) string {
	return tighten(trailingPunct.apply(s))
}
