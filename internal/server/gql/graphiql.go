package gql

var graphiqlPage = []byte(`<!DOCTYPE html>
<html>
<head>
	<title>GraphiQL</title>
	<link href="https://unpkg.com/graphiql@3/graphiql.min.css" rel="stylesheet" />
</head>
<body style="margin: 0;">
	<div id="graphiql" style="height: 100vh;"></div>
	<script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
	<script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
	<script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
	<script>
		const fetcher = GraphiQL.createFetcher({ url: window.location.pathname });
		ReactDOM.createRoot(document.getElementById('graphiql')).render(
			React.createElement(GraphiQL, { fetcher: fetcher })
		);
	</script>
</body>
</html>
`)
