package llm

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/chris/agenda/internal/action"
	"github.com/chris/agenda/internal/db"
	"github.com/chris/agenda/internal/timeutil"
)

const (
	// ApologyMessage is returned when the model could not be reached.
	ApologyMessage = "Sorry, I'm having trouble processing that right now. Try again in a moment?"

	defaultMessage = "I processed your request."
)

// Classification is the classifier's verdict on one message.
type Classification struct {
	Action  action.Action
	Message string // user-facing confirmation
	Raw     string // model output, or the error text on failure
}

// Classifier turns free text into a typed action using an LLM.
type Classifier struct {
	client Client
}

func NewClassifier(client Client) *Classifier {
	return &Classifier{client: client}
}

// Classify never fails: transport and parse faults degrade to a Query.
func (c *Classifier) Classify(ctx context.Context, text string, pc PromptContext) Classification {
	system := BuildSystemPrompt(pc)
	msgs := []Message{{Role: "user", Content: text}}
	log.Printf("classify: prompt ~%d tokens", EstimateTokens(system)+EstimateMessagesTokens(msgs))

	resp, err := c.client.Chat(ctx, system, msgs)
	if err != nil {
		log.Printf("classify: llm error: %v", err)
		return Classification{Action: action.Query{}, Message: ApologyMessage, Raw: err.Error()}
	}
	loc := pc.Location
	if loc == nil {
		loc = time.UTC
	}
	return Parse(resp.Content, loc)
}

// Parse decodes a model reply. An empty reply becomes a Query with the
// apology. Other output that is not a JSON object becomes a Query echoing the
// raw text; an unknown action kind becomes a Query with the model's message.
// The result always carries a non-blank message.
func Parse(raw string, loc *time.Location) Classification {
	body := stripFences(raw)
	if body == "" {
		log.Printf("classify: empty reply")
		return Classification{Action: action.Query{}, Message: ApologyMessage, Raw: raw}
	}
	if !gjson.Valid(body) || !gjson.Parse(body).IsObject() {
		log.Printf("classify: reply is not a JSON object")
		return Classification{Action: action.Query{}, Message: raw, Raw: raw}
	}
	doc := gjson.Parse(body)

	msg := defaultMessage
	if m := doc.Get("message"); m.Exists() && m.Type != gjson.Null && strings.TrimSpace(m.String()) != "" {
		msg = m.String()
	}

	kindName := "QUERY"
	if a := doc.Get("action"); a.Exists() && a.Type != gjson.Null {
		kindName = a.String()
	}
	kind, ok := action.ParseKind(kindName)
	if !ok {
		log.Printf("classify: unknown action %q", kindName)
		kind = action.KindQuery
	}

	p := params{doc.Get("params"), loc}
	return Classification{Action: p.build(kind), Message: msg, Raw: raw}
}

func (p params) build(kind action.Kind) action.Action {
	switch kind {
	case action.KindAddTask:
		prio, _ := db.ParsePriority(p.str("priority"))
		return action.AddTask{
			Title:       p.str("title"),
			Deadline:    p.deadline("deadline"),
			Priority:    prio,
			Description: p.str("description"),
		}
	case action.KindAddEvent:
		a := action.AddEvent{
			Title:       p.str("title"),
			End:         p.when("end_time"),
			Location:    p.str("location"),
			Description: p.str("description"),
		}
		if start := p.when("start_time"); start != nil {
			a.Start = *start
		}
		return a
	case action.KindCompleteTask:
		return action.CompleteTask{Target: p.ref("task_id", "task_title")}
	case action.KindDeleteTask:
		return action.DeleteTask{Target: p.ref("id", "title")}
	case action.KindDeleteEvent:
		return action.DeleteEvent{Target: p.ref("id", "title")}
	case action.KindModifyTask:
		prio, _ := db.ParsePriority(p.str("new_priority"))
		return action.ModifyTask{
			Target:      p.ref("task_id", "task_title"),
			NewTitle:    p.str("new_title"),
			NewDeadline: p.deadline("new_deadline"),
			NewPriority: prio,
		}
	case action.KindModifyEvent:
		return action.ModifyEvent{
			Target:      p.ref("event_id", "event_title"),
			NewTitle:    p.str("new_title"),
			NewStart:    p.when("new_start_time"),
			NewEnd:      p.when("new_end_time"),
			NewLocation: p.str("new_location"),
		}
	}
	return action.Query{}
}

// params reads the loosely typed parameter bag.
type params struct {
	r   gjson.Result
	loc *time.Location
}

func (p params) str(key string) string {
	v := p.r.Get(key)
	if v.Type == gjson.Null || v.IsObject() || v.IsArray() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

func (p params) when(key string) *time.Time {
	s := p.str(key)
	if s == "" {
		return nil
	}
	t, err := timeutil.ParseISO(s, p.loc)
	if err != nil {
		log.Printf("classify: ignoring %s: %v", key, err)
		return nil
	}
	return &t
}

// deadline reads a task deadline. A bare date means the end of that day.
func (p params) deadline(key string) *time.Time {
	t := p.when(key)
	if t == nil {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, p.str(key)); err == nil {
		eod := timeutil.EndOfDay(*t, p.loc)
		return &eod
	}
	return t
}

func (p params) ref(idKey, titleKey string) db.Ref {
	ref := db.Ref{Title: p.str(titleKey)}
	if v := p.r.Get(idKey); v.Type == gjson.Number || v.Type == gjson.String {
		ref.ID = v.Int()
	}
	return ref
}

// stripFences removes a surrounding markdown code block.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	var body []string
	for i, line := range strings.Split(s, "\n") {
		if i == 0 {
			continue
		}
		if strings.HasPrefix(line, "```") {
			break
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n")
}
