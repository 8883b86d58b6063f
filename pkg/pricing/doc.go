// Package pricing implements the marketplace money arithmetic: display
// formatting of cent amounts, percentage discounts, and promotional price
// multipliers. All amounts are integer cents. Every operation rounds half
// away from zero, and rounds exactly once; in particular a discount is
// rounded before it is subtracted from the base amount, never after.
package pricing
