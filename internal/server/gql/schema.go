// Package gql exposes the services through a GraphQL schema served over
// HTTP, including the error formatting clients rely on.
package gql

// Schema is the GraphQL SDL served at /graphql.
const Schema = `
schema {
	query: RootQuery
	mutation: RootMutation
}

type Product {
	_id: ID!
	title: String!
	imageUrls: [String!]
	description: String!
	productType: String!
	creator: User!
	createdAt: String!
	updatedAt: String!
}

type User {
	_id: ID!
	name: String!
	email: String!
	password: String
	products: [Product!]!
}

type ProductData {
	products: [Product!]!
	totalProducts: Int!
}

type AuthData {
	token: String!
	userId: String!
}

type DeleteProductId {
	productId: ID!
}

input ProductInputData {
	title: String!
	imageUrls: [String!]!
	description: String!
	productType: String!
}

input UpdateProductInputData {
	_id: ID!
	title: String!
	imageUrls: [String!]
	description: String!
	productType: String!
}

input UserInputData {
	email: String!
	name: String!
	password: String!
}

type RootQuery {
	login(email: String!, password: String!): AuthData!
	getProducts(productType: String!): ProductData!
	getProduct(productId: ID!): Product!
	getPosts(page: Int): ProductData!
}

type RootMutation {
	createUser(userInput: UserInputData): User!
	createProduct(productInput: ProductInputData): Product!
	deleteProduct(productId: ID!): DeleteProductId!
	updateProduct(productInput: UpdateProductInputData): Product!
	cleanupHelper(productIdArray: [ID!]): [ID!]!
}
`
