package subgraph

const poolFields = `
    id
    chainId
    assetToken { id symbol name decimals }
    reserveToken { id symbol name decimals }
    oracle
    liquidityManager
    cycleManager
    poolStrategy
    oraclePrice
    currentCycle
    cycleState
    lastCycleActionDateTime
    rebalanceLength
    totalLPLiquidityCommited
    lpCount
    poolUtilizationRatio
    poolInterestRate
    assetSupply
    isVerified
    createdAt
`

// PoolsQuery lists verified pools for a chain, newest first.
const PoolsQuery = `query Pools($first: Int!, $chainId: BigInt!) {
  pools(first: $first, where: { isVerified: true, chainId: $chainId }, orderBy: createdAt, orderDirection: desc) {` + poolFields + `  }
}`

// AllPoolsQuery lists verified pools on every chain the indexer covers.
const AllPoolsQuery = `query AllPools($first: Int!) {
  pools(first: $first, where: { isVerified: true }, orderBy: createdAt, orderDirection: desc) {` + poolFields + `  }
}`

// PoolQuery loads one pool by address.
const PoolQuery = `query Pool($id: ID!) {
  pool(id: $id) {` + poolFields + `  }
}`

// LPDataQuery joins an LP position with the LP's latest request.
const LPDataQuery = `query LPData($pool: String!, $lp: String!) {
  lpPositions(first: 1, where: { pool: $pool, lp: $lp }) {
    id
    lp
    liquidityCommitment
    collateralAmount
    interestAccrued
    liquidityHealth
    assetShare
    lastRebalanceCycle
    lastRebalancePrice
    createdAt
    updatedAt
  }
  lpRequests(first: 1, where: { pool: $pool, lp: $lp }, orderBy: requestCycle, orderDirection: desc) {
    id
    requestType
    requestAmount
    requestCycle
    liquidator
    createdAt
    updatedAt
  }
}`

// UserDataQuery joins a depositor position with the user's latest request.
const UserDataQuery = `query UserData($pool: String!, $user: String!) {
  userPositions(first: 1, where: { pool: $pool, user: $user }) {
    id
    user
    assetAmount
    depositAmount
    collateralAmount
    createdAt
    updatedAt
  }
  userRequests(first: 1, where: { pool: $pool, user: $user }, orderBy: requestCycle, orderDirection: desc) {
    id
    requestType
    amount
    collateralAmount
    requestCycle
    createdAt
    updatedAt
  }
}`

const metaQuery = `{ _meta { block { number } } }`
