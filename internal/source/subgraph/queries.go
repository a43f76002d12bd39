package subgraph

import "tokenMirror/internal/model"

// entity describes how one category is exposed by the subgraph.
type entity struct {
	field string
	query string
}

var entities = map[model.Category]entity{
	model.CategoryMint: {field: "mints", query: `
query GetMints($first: Int!, $skip: Int!, $blockNumber: Int!) {
  mints(first: $first, skip: $skip, orderBy: blockNumber, orderDirection: asc, where: { blockNumber_gt: $blockNumber }) {
    id
    to
    amount
    timestamp
    blockNumber
    transactionHash
    logIndex
    minter
  }
}`},
	model.CategoryBurn: {field: "burns", query: `
query GetBurns($first: Int!, $skip: Int!, $blockNumber: Int!) {
  burns(first: $first, skip: $skip, orderBy: blockNumber, orderDirection: asc, where: { blockNumber_gt: $blockNumber }) {
    id
    from
    amount
    timestamp
    blockNumber
    transactionHash
    logIndex
    burner
  }
}`},
	model.CategoryTransfer: {field: "transfers", query: `
query GetTransfers($first: Int!, $skip: Int!, $blockNumber: Int!) {
  transfers(first: $first, skip: $skip, orderBy: blockNumber, orderDirection: asc, where: { blockNumber_gt: $blockNumber }) {
    id
    from
    to
    amount
    blockTimestamp
    blockNumber
    txhash
    logIndex
  }
}`},
	model.CategoryBlacklisted: {field: "blacklisteds", query: `
query GetBlacklisted($first: Int!, $skip: Int!, $blockNumber: Int!) {
  blacklisteds(first: $first, skip: $skip, orderBy: blockNumber, orderDirection: asc, where: { blockNumber_gt: $blockNumber }) {
    id
    account
    timestamp
    blockNumber
    transactionHash
    logIndex
    blacklister
  }
}`},
	model.CategoryUnBlacklisted: {field: "unBlacklisteds", query: `
query GetUnBlacklisted($first: Int!, $skip: Int!, $blockNumber: Int!) {
  unBlacklisteds(first: $first, skip: $skip, orderBy: blockNumber, orderDirection: asc, where: { blockNumber_gt: $blockNumber }) {
    id
    account
    timestamp
    blockNumber
    transactionHash
    logIndex
    blacklister
  }
}`},
}
