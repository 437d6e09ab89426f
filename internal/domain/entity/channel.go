package entity

type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelPush     Channel = "PUSH"
	ChannelWhatsApp Channel = "WHATSAPP"
)

// AllChannels is the full channel set in dispatch order.
var AllChannels = []Channel{ChannelEmail, ChannelPush, ChannelWhatsApp}

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelWhatsApp:
		return true
	}
	return false
}

// ChannelsFromStrings converts stored channel names, dropping unknown values and duplicates.
func ChannelsFromStrings(values []string) []Channel {
	channels := make([]Channel, 0, len(values))
	for _, v := range values {
		channels = append(channels, Channel(v))
	}
	return UniqueChannels(channels)
}

// UniqueChannels keeps the first occurrence of every valid channel.
func UniqueChannels(channels []Channel) []Channel {
	seen := make(map[Channel]bool, len(channels))
	unique := make([]Channel, 0, len(channels))
	for _, c := range channels {
		if !c.Valid() || seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}
	return unique
}

func ChannelsToStrings(channels []Channel) []string {
	values := make([]string, 0, len(channels))
	for _, c := range channels {
		values = append(values, string(c))
	}
	return values
}
