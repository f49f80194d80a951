package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralClick is an append-only record of one visit through a referral link.
type ReferralClick struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Code      string             `json:"code" bson:"code"`
	IP        string             `json:"ip,omitempty" bson:"ip,omitempty"`
	UserAgent string             `json:"userAgent,omitempty" bson:"userAgent,omitempty"`
	Referer   string             `json:"referer,omitempty" bson:"referer,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

// ClickMeta is the request metadata stored with a click.
type ClickMeta struct {
	IP        string
	UserAgent string
	Referer   string
}

// LeaderboardEntry ranks a user by referral clicks.
type LeaderboardEntry struct {
	UserID primitive.ObjectID `json:"userId" bson:"_id"`
	Name   string             `json:"name" bson:"name"`
	Role   string             `json:"role" bson:"role"`
	Clicks int64              `json:"clicks" bson:"clicks"`
}

// ReferralInfo describes the caller's own referral link.
type ReferralInfo struct {
	Code   string `json:"code"`
	Link   string `json:"link"`
	Clicks int64  `json:"clicks"`
}
