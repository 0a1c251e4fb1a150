// Package postgres stores completed signups in the users table through sqlx.
package postgres
