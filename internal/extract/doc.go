// Package extract pulls candidate review texts out of product pages and
// filters out strings too short to be reviews.
//
// Two strategies are available. MarkerStrategy walks the DOM looking for
// elements with a given tag and attribute value; its default marker is
// <span data-hook="review-body">. SelectorStrategy evaluates a CSS
// selector with goquery. ForSite picks one from a site configuration.
//
// Strategies never return errors. A page that cannot be parsed, or that
// has no matching elements, yields an empty slice.
package extract
