// Package paymentservice records course purchases. Completing a payment is
// the single source of payment.completed, which drives enrollment and
// revenue analytics.
package paymentservice
