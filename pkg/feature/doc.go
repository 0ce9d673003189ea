// Package feature holds the feature flag model and the evaluation rules.
//
// A Flag is plain configuration. Bucket maps a (flag key, user id) pair to a
// stable bucket in [0,100), and Evaluate turns a flag, its kill switch state
// and a user id into a Decision using a fixed precedence:
//
//	kill switch > exclusion > explicit target > master switch > rollout bucket
//
// Both functions are pure; storage, locking and auditing live in the engine
// package.
package feature
