package models

import (
	"sort"
	"time"
)

// Circle is a named group of users who share expenses.
type Circle struct {
	// ID is the unique identifier for the circle (UUID format).
	ID string `json:"id"`

	// Name is the display name of the circle (e.g., "Roommates", "Goa Trip").
	Name string `json:"name"`

	// OwnerID is always a member.
	OwnerID string `json:"ownerId"`

	// MemberIDs mirrors the keys of Members, sorted.
	MemberIDs []string `json:"memberIds"`

	// Members holds a profile snapshot per member.
	Members map[string]UserProfile `json:"members"`

	CreatedAt     time.Time  `json:"createdAt"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
}

// IsMember reports whether uid belongs to the circle.
func (c *Circle) IsMember(uid string) bool {
	_, ok := c.Members[uid]
	return ok
}

// MemberProfiles returns the member snapshots ordered by uid.
func (c *Circle) MemberProfiles() []UserProfile {
	profiles := make([]UserProfile, 0, len(c.Members))
	for _, uid := range c.MemberIDs {
		profiles = append(profiles, c.Members[uid])
	}
	return profiles
}

// SetMembers replaces the member map and rebuilds MemberIDs from it.
func (c *Circle) SetMembers(members map[string]UserProfile) {
	c.Members = members
	c.MemberIDs = make([]string, 0, len(members))
	for uid := range members {
		c.MemberIDs = append(c.MemberIDs, uid)
	}
	sort.Strings(c.MemberIDs)
}
