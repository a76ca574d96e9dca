// Package enum defines closed sets of values used across the app: theme groups and store backends.
// Values are structs with unexported fields, only the declared ones can exist.
package enum
