package bot

import (
	"context"
	"strings"
)

// Commands.
const (
	cmdStart         = "start"
	cmdHelp          = "help"
	cmdProgram       = "program"
	cmdAsk           = "ask"
	cmdNetworking    = "networking"
	cmdDonate        = "donate"
	cmdSubscribe     = "subscribe"
	cmdNotifications = "notifications"
	cmdSpeaker       = "speaker"
	cmdOrganizer     = "organizer"
	cmdQuestions     = "questions"
	cmdAnnounce      = "announce"
	cmdApply         = "apply"
	cmdDashboard     = "dashboard"
	cmdHealth        = "health"
	cmdCancel        = "cancel"
)

// Callback data without arguments.
const (
	cbMain            = "menu_main"
	cbProgram         = "menu_program"
	cbAsk             = "menu_ask"
	cbNetworking      = "menu_networking"
	cbDonate          = "menu_donate"
	cbSubscribe       = "menu_subscribe"
	cbNotifications   = "menu_notifications"
	cbSpeaker         = "menu_speaker"
	cbOrganizer       = "menu_organizer"
	cbApply           = "menu_apply"
	cbProfileFill     = "net_fill"
	cbSearch          = "net_search"
	cbMatchStop       = "match_stop"
	cbOrgQuestions    = "org_questions"
	cbOrgNotify       = "org_notify"
	cbOrgDonations    = "org_donations"
	cbOrgApplications = "org_applications"
)

// Callback data prefixes, sent as "prefix:argument".
const (
	cbAskTalk          = "ask_talk"
	cbTalkStart        = "talk_start"
	cbTalkFinish       = "talk_finish"
	cbQuestionAnswered = "q_answered"
	cbQuestionRejected = "q_rejected"
	cbMatchAccept      = "match_accept"
	cbMatchSkip        = "match_skip"
	cbDonateAmount     = "don_amount"
	cbDonationStatus   = "don_status"
	cbDonationRetry    = "don_retry"
	cbSubscribeType    = "sub"
	cbApplyEvent       = "apply_event"
	cbAppReviewed      = "app_reviewed"
)

func withArg(prefix, arg string) string {
	return prefix + ":" + arg
}

func (b *Bot) handleCommand(ctx context.Context, req *request) error {
	switch req.upd.Command {
	case cmdStart:
		return b.start(ctx, req)
	case cmdHelp:
		b.reply(ctx, req, textHelp)
		return nil
	case cmdProgram:
		return b.program(ctx, req)
	case cmdAsk:
		return b.askStart(ctx, req)
	case cmdNetworking:
		return b.networking(ctx, req)
	case cmdDonate:
		return b.donateStart(ctx, req)
	case cmdSubscribe:
		return b.subscribeStart(ctx, req)
	case cmdNotifications:
		return b.toggleNotifications(ctx, req)
	case cmdSpeaker:
		return b.speakerPanel(ctx, req)
	case cmdOrganizer:
		return b.organizerPanel(ctx, req)
	case cmdQuestions:
		return b.showQuestions(ctx, req)
	case cmdAnnounce:
		return b.announceStart(ctx, req)
	case cmdApply:
		return b.applyStart(ctx, req)
	case cmdDashboard:
		return b.dashboard(ctx, req)
	case cmdHealth:
		b.reply(ctx, req, "ok")
		return nil
	case cmdCancel:
		req.session.Reset()
		return b.showMenu(ctx, req, textCancelled)
	default:
		b.reply(ctx, req, textUnknownCommand)
		return nil
	}
}

// continuesFlow reports whether a button press belongs to the conversation in progress
// instead of abandoning it.
func continuesFlow(name string) bool {
	switch name {
	case cbDonateAmount, cbSubscribeType, cbMatchAccept, cbMatchSkip:
		return true
	}
	return false
}

func (b *Bot) handleCallback(ctx context.Context, req *request) error {
	name, arg, _ := strings.Cut(req.upd.CallbackData, ":")
	if !continuesFlow(name) && !req.session.IsIdle() {
		req.session.Reset()
	}

	switch name {
	case cbMain:
		return b.start(ctx, req)
	case cbProgram:
		return b.program(ctx, req)
	case cbAsk:
		return b.askStart(ctx, req)
	case cbNetworking:
		return b.networking(ctx, req)
	case cbDonate:
		return b.donateStart(ctx, req)
	case cbSubscribe:
		return b.subscribeStart(ctx, req)
	case cbNotifications:
		return b.toggleNotifications(ctx, req)
	case cbSpeaker:
		return b.speakerPanel(ctx, req)
	case cbOrganizer:
		return b.organizerPanel(ctx, req)
	case cbApply:
		return b.applyStart(ctx, req)
	case cbProfileFill:
		return b.profileStart(ctx, req)
	case cbSearch:
		return b.search(ctx, req)
	case cbMatchStop:
		return b.matchStop(ctx, req)
	case cbOrgQuestions:
		return b.showQuestions(ctx, req)
	case cbOrgNotify:
		return b.notifyProgram(ctx, req)
	case cbOrgDonations:
		return b.donationSummary(ctx, req)
	case cbOrgApplications:
		return b.listApplications(ctx, req)
	case cbAskTalk:
		return b.askTalk(ctx, req, arg)
	case cbTalkStart:
		return b.talkStart(ctx, req, arg)
	case cbTalkFinish:
		return b.talkFinish(ctx, req, arg)
	case cbQuestionAnswered:
		return b.closeQuestion(ctx, req, arg, true)
	case cbQuestionRejected:
		return b.closeQuestion(ctx, req, arg, false)
	case cbMatchAccept:
		return b.matchAccept(ctx, req, arg)
	case cbMatchSkip:
		return b.matchSkip(ctx, req, arg)
	case cbDonateAmount:
		return b.donateAmount(ctx, req, arg)
	case cbDonationStatus:
		return b.donationStatus(ctx, req, arg)
	case cbDonationRetry:
		return b.donationRetry(ctx, req, arg)
	case cbSubscribeType:
		return b.subscribeChoice(ctx, req, arg)
	case cbApplyEvent:
		return b.applyEvent(ctx, req, arg)
	case cbAppReviewed:
		return b.applicationReviewed(ctx, req, arg)
	default:
		req.ack = textUnknownButton
		return nil
	}
}
