package router

// Verb identifies a bot command
type Verb string

const (
	VerbAdd      Verb = "add"
	VerbList     Verb = "list"
	VerbDone     Verb = "done"
	VerbDelete   Verb = "del"
	VerbEdit     Verb = "edit"
	VerbPrio     Verb = "prio"
	VerbDue      Verb = "due"
	VerbTag      Verb = "tag"
	VerbHelp     Verb = "help"
	VerbStart    Verb = "start"
	VerbStats    Verb = "stats"
	VerbSettings Verb = "settings"
	VerbSearch   Verb = "search"
	VerbRemind   Verb = "remind"
	VerbClear    Verb = "clear"
	VerbExport   Verb = "export"
	VerbSort     Verb = "sort"
)

// argKind describes how one argument slot is matched against the command line.
type argKind int

const (
	// argIndex is a positive task number.
	argIndex argKind = iota
	// argPriority is an integer in [1,5].
	argPriority
	// argWord is a single whitespace-free token, optionally restricted to choices.
	argWord
	// argText consumes the rest of the line verbatim.
	argText
)

type argSpec struct {
	kind     argKind
	required bool
	choices  []string
}

// rule is one row of the grammar: a verb and the shape of its arguments.
type rule struct {
	verb  Verb
	args  []argSpec
	usage string
}

// grammar is matched in order; the first rule whose verb matches wins.
var grammar = []rule{
	{verb: VerbAdd, args: []argSpec{{kind: argText, required: true}},
		usage: "/add <content> [due <date>], e.g. /add Write report due friday 17:00"},
	{verb: VerbList, args: []argSpec{{kind: argWord}},
		usage: "/list [today|week|overdue|completed|pending|tag:<name>]"},
	{verb: VerbDone, args: []argSpec{{kind: argIndex, required: true}},
		usage: "/done <number>"},
	{verb: VerbDelete, args: []argSpec{{kind: argIndex, required: true}},
		usage: "/del <number>"},
	{verb: VerbEdit, args: []argSpec{{kind: argIndex, required: true}, {kind: argText, required: true}},
		usage: "/edit <number> <new content>"},
	{verb: VerbPrio, args: []argSpec{{kind: argIndex, required: true}, {kind: argPriority, required: true}},
		usage: "/prio <number> <1-5> (1 is highest)"},
	{verb: VerbDue, args: []argSpec{{kind: argIndex, required: true}, {kind: argText, required: true}},
		usage: "/due <number> <date>, e.g. /due 2 tomorrow 18:00"},
	{verb: VerbTag, args: []argSpec{{kind: argIndex, required: true}, {kind: argText, required: true}},
		usage: "/tag <number> <tags separated by spaces or commas>"},
	{verb: VerbHelp, usage: "/help"},
	{verb: VerbStart, usage: "/start"},
	{verb: VerbStats, usage: "/stats"},
	{verb: VerbSettings, args: []argSpec{{kind: argWord}, {kind: argText}},
		usage: "/settings [<key> <value>]"},
	{verb: VerbSearch, args: []argSpec{{kind: argText, required: true}},
		usage: "/search <keyword>"},
	{verb: VerbRemind, args: []argSpec{{kind: argIndex, required: true}, {kind: argText, required: true}},
		usage: "/remind <number> <N minutes|hours|days before> [message]"},
	{verb: VerbClear, args: []argSpec{{kind: argWord, choices: []string{"all", "completed", "overdue"}}},
		usage: "/clear <all|completed|overdue>"},
	{verb: VerbExport, usage: "/export"},
	{verb: VerbSort, args: []argSpec{{kind: argWord, choices: []string{"priority", "due", "created"}}},
		usage: "/sort [priority|due|created]"},
}

// Usage returns the usage line for verb, or "" when the verb is unknown.
func Usage(verb Verb) string {
	for _, r := range grammar {
		if r.verb == verb {
			return r.usage
		}
	}
	return ""
}

// Verbs lists every verb in grammar order.
func Verbs() []Verb {
	out := make([]Verb, 0, len(grammar))
	for _, r := range grammar {
		out = append(out, r.verb)
	}
	return out
}
