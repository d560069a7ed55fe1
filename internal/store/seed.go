// ABOUTME: Seed channel sets for the default server and newly created servers
// ABOUTME: Channel ids are stable because messages reference them as TEXT

package store

func strPtr(s string) *string { return &s }

// SeedChannels returns the channel set for the default server. The ids are
// unprefixed for compatibility with existing message rows.
func SeedChannels(now int64) []Channel {
	return []Channel{
		{ID: "general", ServerID: DefaultServerID, Name: "general", Type: ChannelTypeText, Position: 10, Icon: strPtr("#"), CreatedAt: now},
		{ID: "random", ServerID: DefaultServerID, Name: "random", Type: ChannelTypeText, Position: 20, Icon: strPtr("#"), CreatedAt: now},
		{ID: "voice-lobby", ServerID: DefaultServerID, Name: "Lobby", Type: ChannelTypeVoice, Position: 30, Icon: strPtr("\U0001F50A"), LinkedTextChannelID: strPtr("lobby-chat"), Room: strPtr("lobby"), CreatedAt: now},
		{ID: "lobby-chat", ServerID: DefaultServerID, Name: "lobby-chat", Type: ChannelTypeText, Position: 31, Icon: strPtr("#"), CreatedAt: now},
	}
}

// NewServerChannels returns the starter channel set for a freshly created
// server. Ids are prefixed with the server id so they stay globally unique.
func NewServerChannels(serverID string, now int64) []Channel {
	generalID := serverID + "-general"
	randomID := serverID + "-random"
	voiceID := serverID + "-voice-lobby"
	voiceChatID := serverID + "-lobby-chat"
	voiceRoom := serverID + "-lobby"

	return []Channel{
		{ID: generalID, ServerID: serverID, Name: "general", Type: ChannelTypeText, Position: 10, Icon: strPtr("#"), CreatedAt: now},
		{ID: randomID, ServerID: serverID, Name: "random", Type: ChannelTypeText, Position: 20, Icon: strPtr("#"), CreatedAt: now},
		{ID: voiceID, ServerID: serverID, Name: "Lobby", Type: ChannelTypeVoice, Position: 30, Icon: strPtr("\U0001F50A"), LinkedTextChannelID: strPtr(voiceChatID), Room: strPtr(voiceRoom), CreatedAt: now},
		{ID: voiceChatID, ServerID: serverID, Name: "lobby-chat", Type: ChannelTypeText, Position: 31, Icon: strPtr("#"), CreatedAt: now},
	}
}
