// Package retry wraps outbound HTTP calls with bounded retry.
//
// Every CMS and upload call goes through Invoker.Do. A call succeeds when its
// response satisfies the success predicate (2xx by default); otherwise the
// invoker waits per its Policy and tries again until the attempt budget is
// spent, then returns an *ExhaustedError that matches ErrExhausted.
package retry
