package constant

// Pub/sub channels between the proxy and backend processes. One
// channel per entity family keeps per-entity ordering: each channel is
// drained sequentially by its subscriber.
const (
	ChannelGuild   = "lodestone:guild"
	ChannelParty   = "lodestone:party"
	ChannelFriend  = "lodestone:friend"
	ChannelStorage = "lodestone:storage"
)

// Packet actions carried on those channels.
const (
	ActionGuildSync    = "guild_sync"
	ActionGuildDisband = "guild_disband"

	ActionPartySync    = "party_sync"
	ActionPartyDisband = "party_disband"
	ActionPartyWarp    = "party_warp"

	ActionFriendRequest = "friend_request"
	ActionFriendAccept  = "friend_accept"
	ActionFriendDecline = "friend_decline"
	ActionFriendRemove  = "friend_remove"

	ActionStorageSync = "storage_sync"
)
