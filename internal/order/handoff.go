package order

// ContactGreeting pre-fills the chat opened by the header and footer
// contact buttons.
const ContactGreeting = "Hi! I would like to place an order."

const linkBase = "https://wa.me/"

// Link builds a WhatsApp click-to-chat URL. encodedText must already be
// query-encoded, as returned by FormatOrder or Encode.
func Link(recipient, encodedText string) string {
	return linkBase + recipient + "?text=" + encodedText
}

// ContactLink opens a chat with the fixed greeting.
func ContactLink(recipient string) string {
	return Link(recipient, Encode(ContactGreeting))
}
