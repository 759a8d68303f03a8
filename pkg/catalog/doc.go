// Package catalog binds the storefront endpoints to fetch controllers.
//
// Three views share one controller implementation:
//
//   - product listings by category, paged ten at a time
//   - live search, debounced by 300ms and cleared on an empty query
//   - media by category, returned as one unpaged set
//
// Endpoint responses come in two shapes. Products and media use the
// {success, message, data} envelope; search returns a bare object. Both are
// normalised here into pagination.PageResult so controllers never see
// transport-specific shapes.
//
// # Usage
//
//	api, _ := client.New(client.DefaultConfig("https://shop.example.com/api", "my-app/1.0"))
//
//	products := catalog.NewProductListing(api, fetch.Config[int64, catalog.Product]{})
//	defer products.Close()
//
//	products.SetKey(3)
//	state, _ := products.WaitFor(ctx, fetch.Settled[int64, catalog.Product])
//	if state.HasMore {
//		products.LoadMore()
//	}
package catalog
