package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component names the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RequestID records the request identifier under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// UserID records the user identifier under "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Actor records who performed a mutation.
func Actor(id string) slog.Attr {
	return slog.String("actor", id)
}

func FlagKey(key string) slog.Attr {
	return slog.String("flag_key", key)
}

func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// SnapshotVersion records the registry snapshot a record refers to.
func SnapshotVersion(v uint64) slog.Attr {
	return slog.Uint64("snapshot_version", v)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Group creates a slog group attribute.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}
