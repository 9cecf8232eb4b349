package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"meetupbot/internal/domain"
)

// maxAskTalks bounds the talk picker of /ask.
const maxAskTalks = 6

// maxPanelTalks bounds the talk list of the organizer panel.
const maxPanelTalks = 15

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escape makes user supplied text safe inside a Markdown message.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

func menuButtons(caps domain.Capabilities) [][]domain.Button {
	rows := [][]domain.Button{
		{{Text: "📅 Program", Data: cbProgram}, {Text: "❓ Ask the speaker", Data: cbAsk}},
		{{Text: "🤝 Networking", Data: cbNetworking}, {Text: "🍕 Donate", Data: cbDonate}},
		{{Text: "🔔 Subscriptions", Data: cbSubscribe}, {Text: "🎤 Apply to speak", Data: cbApply}},
	}
	if caps.Speaker {
		rows = append(rows, []domain.Button{{Text: "🎤 Speaker panel", Data: cbSpeaker}})
	}
	if caps.Organizer {
		rows = append(rows, []domain.Button{{Text: "🛠 Organizer panel", Data: cbOrganizer}})
	}
	return rows
}

func mainMenuRow() []domain.Button {
	return []domain.Button{{Text: "Main menu", Data: cbMain}}
}

func roleName(caps domain.Capabilities) string {
	switch {
	case caps.Organizer:
		return "Organizer"
	case caps.Speaker:
		return "Speaker"
	default:
		return "Guest"
	}
}

func speakerOrTBA(t *domain.Talk) string {
	if name := t.SpeakerName(); name != "" {
		return name
	}
	return "to be announced"
}

func (b *Bot) clock(t time.Time) string {
	return t.In(b.opts.Location).Format("15:04")
}

func (b *Bot) date(t time.Time) string {
	return t.In(b.opts.Location).Format("02.01.2006")
}

// renderProgram lists events running now and upcoming ones, each with its talks.
func (b *Bot) renderProgram(current, future []*domain.EventProgram) string {
	if len(current) == 0 && len(future) == 0 {
		return "No current or upcoming events."
	}
	var lines []string
	if len(current) > 0 {
		lines = append(lines, "*HAPPENING NOW:*", "")
		for _, p := range current {
			lines = append(lines, b.renderEventBlock(p)...)
			lines = append(lines, "")
		}
	}
	if len(future) > 0 {
		lines = append(lines, "📅 *UPCOMING EVENTS:*", "")
		for _, p := range future {
			lines = append(lines, b.renderEventBlock(p)...)
			lines = append(lines, "")
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (b *Bot) renderEventBlock(p *domain.EventProgram) []string {
	e := p.Event
	lines := []string{
		fmt.Sprintf("🎉 *%s*", escape(e.Name)),
		fmt.Sprintf("   Date: %s", b.date(e.StartAt)),
		fmt.Sprintf("   Time: 🕒 %s to %s", b.clock(e.StartAt), b.clock(e.EndAt)),
	}
	if e.Place != nil {
		lines = append(lines, fmt.Sprintf("   Venue: 📍%s, %s", escape(e.Place.Name), escape(e.Place.Address)))
	}
	if len(p.Talks) == 0 {
		return append(lines, "   The program is not ready yet.")
	}
	lines = append(lines, "", "   🎤 *Talks:*")
	for _, t := range p.Talks {
		cancelled := ""
		if t.Status == domain.TalkCancelled {
			cancelled = " *(❌ cancelled)*"
		}
		lines = append(lines,
			fmt.Sprintf("   • *%s* %s%s", b.clock(t.StartAt), escape(t.Title), cancelled),
			fmt.Sprintf("     Speaker: 👤 %s", escape(speakerOrTBA(t))),
		)
	}
	return lines
}

// renderNowAndNext describes the current talk and the next one of the active event.
func (b *Bot) renderNowAndNext(current, next *domain.Talk) string {
	var parts []string
	if current != nil {
		parts = append(parts, fmt.Sprintf("▶️ *Now:* %s\nSpeaker: %s\nTime: %s to %s",
			escape(current.Title), escape(speakerOrTBA(current)), b.clock(current.StartAt), b.clock(current.EndAt)))
	} else {
		parts = append(parts, "No talk is running right now.")
	}
	if next != nil {
		parts = append(parts, fmt.Sprintf("⏭ *Next:* %s\nSpeaker: %s\nStarts at %s",
			escape(next.Title), escape(speakerOrTBA(next)), b.clock(next.StartAt)))
	}
	return strings.Join(parts, "\n\n")
}

func statusIcon(s domain.TalkStatus) string {
	switch s {
	case domain.TalkInProgress:
		return "▶️"
	case domain.TalkDone:
		return "✅"
	case domain.TalkCancelled:
		return "🚫"
	default:
		return "⏳"
	}
}

func statsLine(s domain.QuestionStats) string {
	return fmt.Sprintf("   ❓ Total: %d | Answered: %d | Rejected: %d | Waiting: %d",
		s.Total, s.Answered, s.Rejected, s.Pending)
}

// talkButton offers to finish the current talk or to make another live talk current.
func talkButton(t *domain.TalkWithStats, label string) []domain.Button {
	if t.IsCurrent {
		return []domain.Button{{Text: "✅ Finish: " + shorten(label, 24), Data: withArg(cbTalkFinish, t.Talk.ID)}}
	}
	return []domain.Button{{Text: "▶️ Make current: " + shorten(label, 24), Data: withArg(cbTalkStart, t.Talk.ID)}}
}

// renderProfile prints a profile card. The contact is only shown to its owner; a
// candidate's contact is revealed when the match is accepted.
func renderProfile(title string, p *domain.NetworkingProfile, withContact bool) string {
	card := fmt.Sprintf("%s\nRole: %s\nCompany: %s\nStack: %s\nInterests: %s",
		title, p.Role, p.Company, p.Stack, p.Interests)
	if withContact {
		card += "\nContact: " + p.Contact
	}
	return card
}

func matchButtons(matchID string) [][]domain.Button {
	return [][]domain.Button{
		{{Text: "Contact", Data: withArg(cbMatchAccept, matchID)}},
		{{Text: "Next", Data: withArg(cbMatchSkip, matchID)}},
		{{Text: "Stop", Data: cbMatchStop}},
	}
}

func searchEndButtons() [][]domain.Button {
	return [][]domain.Button{
		{{Text: "Try again", Data: cbSearch}},
		mainMenuRow(),
	}
}

func donationButtons(d *domain.Donation) [][]domain.Button {
	var rows [][]domain.Button
	if d.ConfirmationURL != "" {
		rows = append(rows, []domain.Button{{Text: "Pay", URL: d.ConfirmationURL}})
	}
	rows = append(rows, []domain.Button{{Text: "Check status", Data: withArg(cbDonationStatus, d.ID)}})
	return rows
}

func donationStatusName(s domain.DonationStatus) string {
	switch s {
	case domain.DonationSucceeded:
		return "paid, thank you! 💚"
	case domain.DonationWaitingForCapture:
		return "waiting for confirmation"
	case domain.DonationCanceled:
		return "canceled"
	case domain.DonationFailed:
		return "failed"
	default:
		return "waiting for payment"
	}
}

func (b *Bot) renderDonationSummary(event *domain.Event, s *domain.DonationSummary) string {
	lines := []string{
		fmt.Sprintf("Donations for %s", event.Name),
		fmt.Sprintf("Collected: %s %s", domain.FormatAmount(s.Total), s.Currency),
		fmt.Sprintf("Donations: %d", s.Count),
	}
	if len(s.Latest) > 0 {
		lines = append(lines, "", "Latest:")
		for _, d := range s.Latest {
			who := "anonymous"
			if d.Participant != nil {
				who = d.Participant.DisplayName()
			}
			lines = append(lines, fmt.Sprintf("• %s %s %s from %s (%s)",
				b.clock(d.CreatedAt), domain.FormatAmount(d.Amount), d.Currency, who, donationStatusName(d.Status)))
		}
	}
	return strings.Join(lines, "\n")
}

func questionAuthor(q *domain.Question) string {
	if q.Author == nil {
		return "Anonymous"
	}
	name := escape(q.Author.Handle())
	if name == "" {
		name = "Anonymous"
	}
	if q.Author.TelegramID != 0 {
		return fmt.Sprintf("[%s](tg://user?id=%d)", name, q.Author.TelegramID)
	}
	return name
}
