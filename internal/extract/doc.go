// Package extract maps Scholar markup to records.
//
// Functions here are pure: they take a goquery selection (one content row
// or a whole page) and return or fill model values. Fields the markup does
// not carry are left at their zero value. Links are kept as Scholar
// renders them, which is usually relative to the site origin.
package extract
