package v1

import (
	"testing"

	"github.com/vouchapp/vouch/store"
)

func TestParseListFilter(t *testing.T) {
	tests := []struct {
		name            string
		filter          string
		wantErr         bool
		wantContentType *store.ContentType
		wantVisibility  *store.Visibility
		wantCreatorID   *int32
	}{
		{
			name:   "empty filter",
			filter: "",
		},
		{
			name:   "whitespace filter",
			filter: "   ",
		},
		{
			name:            "content type",
			filter:          `content_type == 'place'`,
			wantContentType: contentTypePtr(store.ContentTypePlace),
		},
		{
			name:           "visibility",
			filter:         `visibility == 'public'`,
			wantVisibility: visibilityPtr(store.VisibilityPublic),
		},
		{
			name:          "creator id",
			filter:        `creator_id == 42`,
			wantCreatorID: int32Ptr(42),
		},
		{
			name:          "reversed operands",
			filter:        `42 == creator_id`,
			wantCreatorID: int32Ptr(42),
		},
		{
			name:            "conjunction",
			filter:          `content_type == 'service' && visibility == 'friends'`,
			wantContentType: contentTypePtr(store.ContentTypeService),
			wantVisibility:  visibilityPtr(store.VisibilityFriends),
		},
		{
			name:            "three way conjunction",
			filter:          `content_type == 'tip' && visibility == 'public' && creator_id == 7`,
			wantContentType: contentTypePtr(store.ContentTypeTip),
			wantVisibility:  visibilityPtr(store.VisibilityPublic),
			wantCreatorID:   int32Ptr(7),
		},
		{
			name:    "unknown field",
			filter:  `rating == 5`,
			wantErr: true,
		},
		{
			name:    "unsupported operator",
			filter:  `creator_id != 42`,
			wantErr: true,
		},
		{
			name:    "or not supported",
			filter:  `content_type == 'place' || content_type == 'service'`,
			wantErr: true,
		},
		{
			name:    "unknown content type value",
			filter:  `content_type == 'shoutout'`,
			wantErr: true,
		},
		{
			name:    "unknown visibility value",
			filter:  `visibility == 'secret'`,
			wantErr: true,
		},
		{
			name:    "field compared to field",
			filter:  `content_type == visibility`,
			wantErr: true,
		},
		{
			name:    "wrong constant type",
			filter:  `creator_id == 'alice'`,
			wantErr: true,
		},
		{
			name:    "duplicate field",
			filter:  `creator_id == 1 && creator_id == 2`,
			wantErr: true,
		},
		{
			name:    "bare identifier",
			filter:  `content_type`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			filter:  `content_type == `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := parseListFilter(tt.filter)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseListFilter(%q) expected error, got %+v", tt.filter, filter)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseListFilter(%q) unexpected error: %v", tt.filter, err)
			}

			if filter == nil {
				if tt.wantContentType != nil || tt.wantVisibility != nil || tt.wantCreatorID != nil {
					t.Fatal("expected a parsed filter, got nil")
				}
				return
			}

			if !equalPtr(filter.contentType, tt.wantContentType) {
				t.Errorf("contentType = %v, want %v", deref(filter.contentType), deref(tt.wantContentType))
			}
			if !equalPtr(filter.visibility, tt.wantVisibility) {
				t.Errorf("visibility = %v, want %v", deref(filter.visibility), deref(tt.wantVisibility))
			}
			if !equalPtr(filter.creatorID, tt.wantCreatorID) {
				t.Errorf("creatorID = %v, want %v", deref(filter.creatorID), deref(tt.wantCreatorID))
			}
		})
	}
}

func contentTypePtr(t store.ContentType) *store.ContentType {
	return &t
}

func visibilityPtr(v store.Visibility) *store.Visibility {
	return &v
}

func int32Ptr(v int32) *int32 {
	return &v
}

func equalPtr[T comparable](got, want *T) bool {
	if (got == nil) != (want == nil) {
		return false
	}
	return got == nil || *got == *want
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
