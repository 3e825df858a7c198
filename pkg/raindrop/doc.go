// Package raindrop provides a client for the Raindrop.io REST API.
//
// This package includes:
//   - A bearer-token HTTP client whose calls pass through a rate governor
//     and are retried on 429 responses
//   - Typed models for collections and items, with the service's several
//     reference encodings normalized to plain ids on decode
//   - An ItemPager that walks a collection page by page with a hard cap
//
// Example usage:
//
//	client := raindrop.NewClient(token)
//
//	roots, err := client.ListRootCollections(ctx)
//	if err != nil {
//	    return err
//	}
//
//	pager := raindrop.NewItemPager(client, roots[0].ID, raindrop.PagerOptions{})
//	for {
//	    items, ok, err := pager.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    for _, item := range items {
//	        _ = client.UpdateItemTags(ctx, item.ID, append(item.Tags, "read-later"))
//	    }
//	}
package raindrop
