package domain

// Permission codes form a small closed set fixed at compile time. The
// grant table stays a flexible many-to-many mapping underneath.
const (
	PermissionMoviesRead  = "movies:read"
	PermissionMoviesWrite = "movies:write"
)
