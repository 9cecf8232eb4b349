package bot

const (
	textMenu = "What would you like to do?"

	textWelcome = "Hi! I am the meetup bot.\n" +
		"• Ask the speaker a question during the talk\n" +
		"• See the program and what comes next\n" +
		"• Meet other participants through short profiles and matches\n" +
		"• Speakers finish their talk with a button so questions move on to the next speaker\n" +
		"You are signed in as: %s"

	textHelp = "Commands:\n" +
		"/start main menu\n" +
		"/program event program\n" +
		"/ask ask the current speaker\n" +
		"/networking meet other participants\n" +
		"/donate support the meetup\n" +
		"/subscribe program updates and future events\n" +
		"/notifications turn announcements on or off\n" +
		"/apply apply to speak at an upcoming event\n" +
		"/speaker speaker panel\n" +
		"/organizer organizer panel\n" +
		"/questions pending questions for the current talk\n" +
		"/announce send an announcement (organizers)\n" +
		"/dashboard dashboard access token (organizers)\n" +
		"/cancel stop the current dialog"

	textUseMenu         = "Pick an action from the menu or send /help."
	textCancelled       = "OK, cancelled."
	textUnknownCommand  = "I don't know this command. Send /help for the list."
	textUnknownButton   = "This button is no longer active."
	textInternalError   = "Something went wrong. Please try again later."
	textNoActiveEvent   = "There is no active event right now. Stay tuned."
	textNotAllowed      = "This is only available to organizers."
	textSpeakersOnly    = "The speaker panel is only available to assigned speakers."
	textTalkNotFound    = "Talk not found."
	textNoCurrentTalk   = "No talk is running right now."
	textUseMatchButtons = "Use the buttons under the profile card, or /cancel."

	textAskPrompt      = "Talk:\n%s\nSpeaker: %s\n\nWrite your question and I will pass it to the speaker. /cancel to stop."
	textAskChooseTalk  = "No talk is running right now. Pick the talk you want to ask about."
	textAskEmptyProg   = "The program is empty. Ask the organizers or come back later."
	textAskInvalid     = "A question must be between 1 and %d characters. Try again or /cancel."
	textAskDelivered   = "Thanks! Your question was passed to the speaker."
	textAskQueued      = "Thanks! Your question is queued for the speaker."
	textAskTalkClosed  = "This talk has already ended. Pick another one with /ask."
	textQuestionClosed = "This question was already handled."

	textNetworkingIntro = "Let's get acquainted:\n" +
		"1) Fill in a short profile\n" +
		"2) Get the profile of another participant\n" +
		"3) Buttons: Contact, Next, Stop\n" +
		"4) If you are first, I will ping you when new profiles appear\n" +
		"Only the person you choose sees your contact."
	textProfileRole      = "What is your role? (for example backend, data, PM). /cancel to stop."
	textProfileCompany   = "Where do you work? (company or team)"
	textProfileStack     = "What is your stack or key technologies?"
	textProfileInterests = "What topics would you like to discuss?"
	textProfileContact   = "Leave a Telegram contact (@username)."
	textProfileEmpty     = "Please answer with a non-empty message."
	textProfileMissing   = "Profile not found. Fill it in first."
	textFirstInLine      = "You are first in line. I will ping you when another profile appears.\nYou can go back to the menu or try again later."
	textNoMoreProfiles   = "No more profiles for now. I will ping you when new ones appear."
	textSearchStopped    = "OK, matching stopped. Back to the menu or try again later?"
	textNoOffer          = "This suggestion is no longer active."
	textContactPeer      = "Reach out to %s. Enjoy the conversation!"
	textPeerFound        = "Found someone for you!\n%s\nWant to talk?"

	textDonatePrompt    = "Enter the amount in %s (minimum %s) or pick one below. /cancel to stop."
	textDonateInvalid   = "Enter a number of at least %s %s, for example 300 or 300.50."
	textDonateDisabled  = "Donations are not configured yet. Thank you for the thought!"
	textDonateFailed    = "Could not create a payment link right now. Try again in a minute."
	textDonateCreated   = "Thank you! Pay %s %s using the button below."
	textDonationStatus  = "Donation of %s %s: %s"
	textDonationUnknown = "Donation not found."

	textSubscribePrompt = "What would you like to follow?\n%s this event's program: %s\n%s future events: %s"
	textSubscribeBad    = "Pick one of the buttons, or type \"event\" or \"future\"."
	textSubscribedOn    = "Subscribed to %s."
	textSubscribedOff   = "Unsubscribed from %s."

	textNotificationsOn  = "Announcements are on."
	textNotificationsOff = "Announcements are off. Send /notifications to turn them back on."

	textAnnouncePrompt   = "Send the announcement text. It goes to everyone who has not turned announcements off. /cancel to stop."
	textAnnounceDisabled = "Announcements are disabled for this event."
	textAnnounceEmpty    = "The announcement is empty. Send the text or /cancel."
	textAnnounceSent     = "Announcement delivered to %d participants, %d failed."
	textAnnouncement     = "News about \"%s\":\n\n%s"
	textProgramNotified  = "Program sent to %d subscribers, %d failed."

	textApplyNone        = "There are no events open for speaker applications."
	textApplyChoose      = "Pick the event you want to speak at:"
	textApplyTopic       = "Event: %s\n\nBriefly describe the topic you would like to present. /cancel to stop."
	textApplyContact     = "Leave a contact for the organizers (Telegram, phone or e-mail)."
	textApplyEmpty       = "Please describe it in one non-empty message."
	textApplyClosed      = "Applications for this event are closed."
	textApplySent        = "Your application was sent! We will get back to you after review."
	textAppReviewed      = "Application marked as reviewed."
	textNoApplications   = "No new speaker applications."
	textApplicationEntry = "%s\nEvent: %s\nTopic: %s\nContact: %s"

	textQuestionsNone = "No questions are waiting for an answer."
	textTalkStarted   = "Talk is now current."
	textTalkFinished  = "Talk finished."
	textManageDenied  = "Only organizers or the assigned speaker can change the talk status."
	textTalkBadState  = "This talk can no longer be started."

	textDashboardToken = "Dashboard token (valid until %s):\n%s"
)
