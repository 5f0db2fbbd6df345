package entities

import "time"

// FeedRecord is one mirrored data point from the upstream cloud feed.
// The upstream record id is used as the Mongo _id so inserts are
// idempotent per feed collection. Records are immutable once mirrored;
// only the manual CRUD endpoints ever update or delete them.
type FeedRecord struct {
	ID           string    `json:"id" bson:"_id"`
	Value        string    `json:"value" bson:"value"`
	FeedID       int64     `json:"feed_id" bson:"feed_id"`
	FeedKey      string    `json:"feed_key" bson:"feed_key"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	CreatedEpoch int64     `json:"created_epoch" bson:"created_epoch"`
	Expiration   time.Time `json:"expiration,omitempty" bson:"expiration,omitempty"`
	FeedName     string    `json:"feedName" bson:"feedName"`
}

// Feed describes one mirrored upstream feed: the route segment it is
// served under, the upstream feed key, and the local collection name.
type Feed struct {
	Slug       string `json:"slug"`
	Key        string `json:"key"`
	Collection string `json:"collection"`
}

// Feeds is the registry of every feed this server mirrors.
var Feeds = []Feed{
	{Slug: "humidity", Key: "bbc-humidity", Collection: "bbc_humidity"},
	{Slug: "led", Key: "bbc-led", Collection: "bbc_led"},
	{Slug: "temp", Key: "bbc-temp", Collection: "bbc_temp"},
	{Slug: "fan", Key: "bbc-fan", Collection: "bbc_fan"},
	{Slug: "ir", Key: "bbc-ir", Collection: "bbc_ir"},
	{Slug: "pir", Key: "bbc-pir", Collection: "bbc_pir"},
	{Slug: "state", Key: "bbc-state", Collection: "bbc_state"},
}

// FeedBySlug looks up a feed descriptor by its route segment.
func FeedBySlug(slug string) (Feed, bool) {
	for _, f := range Feeds {
		if f.Slug == slug {
			return f, true
		}
	}
	return Feed{}, false
}

// FeedByKey looks up a feed descriptor by its upstream feed key.
func FeedByKey(key string) (Feed, bool) {
	for _, f := range Feeds {
		if f.Key == key {
			return f, true
		}
	}
	return Feed{}, false
}
